/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/audithistory/errors"
	"github.com/suparena/audithistory/registry"
	"github.com/suparena/audithistory/storagemodels"
)

// QueryPartition pages through one partition. Items stored for other entity types are
// skipped, and paging stops once params.Limit items of type T have been collected.
func (d *DynamodbDataStore[T]) QueryPartition(ctx context.Context, params *storagemodels.QueryParams) ([]T, error) {
	if params == nil || params.PartitionKey == "" {
		return nil, errors.NewValidationError("PartitionKey", "partition key is required")
	}

	keyCond := "PK = :pk"
	exprVals := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: params.PartitionKey},
	}
	if params.HasSortKeyRange() && params.SortKeyPrefix != "" {
		return nil, errors.NewValidationError("SortKeyPrefix", "cannot be combined with a sort key range")
	}

	switch {
	case params.HasSortKeyRange():
		keyCond += " AND SK BETWEEN :skFrom AND :skTo"
		exprVals[":skFrom"] = &types.AttributeValueMemberS{Value: params.SortKeyFrom}
		exprVals[":skTo"] = &types.AttributeValueMemberS{Value: params.SortKeyTo}
	case params.SortKeyPrefix != "":
		keyCond += " AND begins_with(SK, :skPrefix)"
		exprVals[":skPrefix"] = &types.AttributeValueMemberS{Value: params.SortKeyPrefix}
	}

	input := &sdk.QueryInput{
		TableName:                 &d.tableName,
		KeyConditionExpression:    &keyCond,
		ExpressionAttributeValues: exprVals,
		ScanIndexForward:          aws.Bool(params.ScanIndexForward),
	}
	if params.Limit > 0 {
		input.Limit = aws.Int32(params.Limit)
	}

	wantType, typed := registry.EntityTypeOf[T]()

	var results []T
	paginator := sdk.NewQueryPaginator(d.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query error: %w", err)
		}

		for _, item := range page.Items {
			if typed && !hasEntityType(item, wantType) {
				continue
			}
			var entity T
			if err := attributevalue.UnmarshalMap(item, &entity); err != nil {
				return nil, fmt.Errorf("failed to unmarshal item: %w", err)
			}
			results = append(results, entity)
			if params.Limit > 0 && int32(len(results)) >= params.Limit {
				return results, nil
			}
		}
	}
	return results, nil
}

func hasEntityType(item map[string]types.AttributeValue, want string) bool {
	attr, ok := item[registry.EntityTypeAttribute].(*types.AttributeValueMemberS)
	return ok && attr.Value == want
}
