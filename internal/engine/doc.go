// Package engine is the simulation core of the factory server: the monthly
// clock, the continuous production accrual, the historical/random event
// engine, and the ownership ledger over a loaded brand catalog.
package engine
