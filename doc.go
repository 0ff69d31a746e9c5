/*
Package audithistory exports audit history records from S3 into a single CSV or XLSX file.

Records are stored as gzip-compressed, newline-delimited JSON under one of two key layouts:

	aw_id/account_id={account}/adwords_id={sub_entity}/...
	timestamp/account_id={account}/date={YYYY-MM-DD}/...

A run is a linear pipeline: build key prefixes for the target, list every object under
them, download the objects into a scratch directory, decode the records, merge them into one
table whose columns are the union of all record keys, and write the table out.

Basic Usage:

	store := s3store.New(s3store.NewS3Client(awsCfg, ""), "poc-audit-history-records", logger)
	exp, _ := exporter.New("out", exporter.FormatCSV, logger)

	p := audithistory.New(store, exp, logger, audithistory.WithScratchDir("tmp"))
	res, err := p.Run(ctx, query.NewDirectLookup("123", "456"))
	if err == nil && res.NoData {
	    fmt.Println("no data found")
	}

The run is all-or-nothing: a failure in any stage aborts it without writing output, and the
scratch directory is removed whether the run succeeds or not.
*/
package audithistory
