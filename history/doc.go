// Package history keeps a ledger of export runs in a DataStore, one partition per account.
package history
