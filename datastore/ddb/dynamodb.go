/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/audithistory/errors"
	"github.com/suparena/audithistory/registry"
)

// Client is the subset of the DynamoDB API used by the store. *sdk.Client satisfies it.
type Client interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	sdk.QueryAPIClient
}

// DynamodbDataStore implements datastore.DataStore[T] on a single DynamoDB table.
type DynamodbDataStore[T any] struct {
	client    Client
	tableName string
}

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// expandMacros resolves every template in indexMap against the attributes of keysInput.
// A macro naming an absent or non-scalar attribute expands to "".
func expandMacros(indexMap map[string]string, keysInput any) (map[string]string, error) {
	av, err := attributevalue.MarshalMap(keysInput)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keysInput: %w", err)
	}

	res := make(map[string]string, len(indexMap))
	for fieldName, template := range indexMap {
		res[fieldName] = macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			return scalarString(av[strings.Trim(macro, "{}")])
		})
	}
	return res, nil
}

func scalarString(val types.AttributeValue) string {
	switch tv := val.(type) {
	case *types.AttributeValueMemberS:
		return tv.Value
	case *types.AttributeValueMemberN:
		return tv.Value
	case *types.AttributeValueMemberBOOL:
		return fmt.Sprintf("%v", tv.Value)
	default:
		// NULL, binary, sets, lists and maps have no key representation
		return ""
	}
}

// NewDynamoDBClient creates a client from cfg. A non-empty endpoint targets DynamoDB Local
// or another compatible service.
func NewDynamoDBClient(cfg aws.Config, endpoint string) *sdk.Client {
	return sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// NewDynamodbDataStore constructs a DynamodbDataStore for type T. T must have an index map
// registered.
func NewDynamodbDataStore[T any](client Client, tableName string) (*DynamodbDataStore[T], error) {
	if tableName == "" {
		return nil, errors.NewValidationError("table", "table name is required")
	}
	if _, ok := registry.GetIndexMap[T](); !ok {
		return nil, errors.ErrNoIndexMap
	}
	return &DynamodbDataStore[T]{
		client:    client,
		tableName: tableName,
	}, nil
}

// GetOne retrieves a single item. A missing item is a NotFoundError.
func (d *DynamodbDataStore[T]) GetOne(ctx context.Context, keyInput any) (*T, error) {
	indexMap, ok := registry.GetIndexMap[T]()
	if !ok {
		return nil, errors.ErrNoIndexMap
	}

	key, err := d.getKey(keyInput, indexMap)
	if err != nil {
		return nil, fmt.Errorf("failed to build key: %w", err)
	}

	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: &d.tableName,
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, errors.NewNotFoundError(entityName[T](), keyString(key))
	}

	result := new(T)
	if err := attributevalue.UnmarshalMap(out.Item, result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return result, nil
}

// Put stores entity with its expanded key attributes and, when registered, its entity type.
func (d *DynamodbDataStore[T]) Put(ctx context.Context, entity T) error {
	indexMap, ok := registry.GetIndexMap[T]()
	if !ok {
		return errors.ErrNoIndexMap
	}

	av, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	if err := requireKeyFields(indexMap, av); err != nil {
		return err
	}
	expanded, err := expandMacros(indexMap, entity)
	if err != nil {
		return err
	}
	for k, v := range expanded {
		av[k] = &types.AttributeValueMemberS{Value: v}
	}
	if name, ok := registry.EntityTypeOf[T](); ok {
		av[registry.EntityTypeAttribute] = &types.AttributeValueMemberS{Value: name}
	}

	_, err = d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: &d.tableName,
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

func (d *DynamodbDataStore[T]) getKey(keyInput any, indexMap map[string]string) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(keyInput)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keyInput: %w", err)
	}
	if err := requireKeyFields(indexMap, av); err != nil {
		return nil, err
	}
	expanded, err := expandMacros(indexMap, keyInput)
	if err != nil {
		return nil, err
	}
	return buildKeyFromExpanded(expanded)
}

// requireKeyFields rejects input where an attribute referenced by the PK or SK template
// is missing or empty.
func requireKeyFields(indexMap map[string]string, av map[string]types.AttributeValue) error {
	for _, k := range []string{registry.PartitionKey, registry.SortKey} {
		for _, m := range macroPattern.FindAllStringSubmatch(indexMap[k], -1) {
			if scalarString(av[m[1]]) == "" {
				return errors.NewValidationError(m[1], fmt.Sprintf("required by the %s template", k))
			}
		}
	}
	return nil
}

// buildKeyFromExpanded builds a DynamoDB key from the expanded index map.
// Both PK and SK must be non-empty.
func buildKeyFromExpanded(expanded map[string]string) (map[string]types.AttributeValue, error) {
	pk := expanded[registry.PartitionKey]
	sk := expanded[registry.SortKey]
	if pk == "" || sk == "" {
		return nil, errors.NewValidationError("key", "expanded index map missing valid PK or SK")
	}

	return map[string]types.AttributeValue{
		registry.PartitionKey: &types.AttributeValueMemberS{Value: pk},
		registry.SortKey:      &types.AttributeValueMemberS{Value: sk},
	}, nil
}

func keyString(key map[string]types.AttributeValue) string {
	return scalarString(key[registry.PartitionKey]) + "|" + scalarString(key[registry.SortKey])
}

func entityName[T any]() string {
	if name, ok := registry.EntityTypeOf[T](); ok {
		return name
	}
	var zero T
	return fmt.Sprintf("%T", zero)
}
