/*
Package errors provides semantic error types for the audit history exporter.

Every pipeline stage reports failures as a StageError, which matches the sentinel for its
stage through errors.Is:

	var (
	    ErrClientInit = errors.New("store client initialisation failed")
	    ErrListing    = errors.New("object listing failed")
	    ErrScratch    = errors.New("scratch area setup failed")
	    ErrDownload   = errors.New("object download failed")
	    ErrParse      = errors.New("record parse failed")
	    ErrExport     = errors.New("export failed")
	)

Usage:

	keys, err := objectstore.ListAll(ctx, store, prefixes)
	if err != nil {
	    if errors.IsListing(err) {
	        // Print a credentials hint
	    }
	    return err
	}

	err := errors.NewStageError(errors.StageDownload, key, cause)
	err := errors.NewParseError("a.gz", 12, cause)

The run history store uses NotFoundError and ValidationError in the same way.
*/
package errors
