/*
Package storagemodels defines the data structures shared by the object store, the
downloader and the run history store.

ListOptions:
Configuration for paginated listing, applied as functional options:

	keys, err := store.List(ctx, prefix,
	    storagemodels.WithPageSize(500),
	    storagemodels.WithListProgress(func(p storagemodels.ListProgress) {
	        log.Printf("%s: %d keys after %d pages", p.Prefix, p.KeysListed, p.PagesProcessed)
	    }),
	)

DownloadProgress:
Reported by the bulk downloader after each object lands in the scratch area.

QueryParams:
Parameters for a partition query against a DataStore:

	params := &storagemodels.QueryParams{
	    PartitionKey: "ACCOUNT#123",
	    Limit:        10,
	}
*/
package storagemodels
