/*
Package ddb provides a DynamoDB implementation of the DataStore interface.

The DynamodbDataStore supports:
  - Single-table design with PK/SK string keys
  - Macro-based key expansion (e.g., "ACCOUNT#{AccountID}")
  - EntityType injection so partitions can hold several entity types
  - Partition queries with an optional sort key prefix, paged until a limit is reached

Macro Expansion:
Key templates reference attributes of the entity being written:

	indexMap := map[string]string{
	    "PK": "ACCOUNT#{AccountID}",       // Becomes "ACCOUNT#123"
	    "SK": "RUN#{GeneratedAt}#{RunID}",
	}

The same templates are expanded against a key value for GetOne, so any struct carrying
the referenced fields can be used as the key.
*/
package ddb
