// Package config loads audithistory settings.
//
// Sources are applied in order, later ones winning: built-in defaults, an optional YAML file,
// .env files, AUDIT_* environment variables, and finally command line flags set by the caller.
//
//	bucket: poc-audit-history-records
//	scratch_dir: tmp
//	format: xlsx
//	aws:
//	  region: us-east-1
//	history:
//	  table: audit-export-runs
package config
