/*
Package registry records how Go types are stored in DynamoDB.

Index maps associate a type with key templates. Macros in braces are replaced with the
attribute of the same name when an entity is written:

	registry.RegisterIndexMap[history.ExportRun](map[string]string{
	    "PK": "ACCOUNT#{AccountID}",
	    "SK": "RUN#{GeneratedAt}#{RunID}",
	})

Entity type names are stored in the EntityType attribute so partition queries return only
items of the requested type:

	registry.RegisterEntityType[history.ExportRun]("ExportRun")

Registration is safe for concurrent use and normally happens in init functions.
*/
package registry
