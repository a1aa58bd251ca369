package recordstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/logging"
)

// DynamoAPI is the subset of *dynamodb.Client used by DynamoStore.
type DynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	ListTables(ctx context.Context, in *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newDynamoClientFromConfig = func(cfg aws.Config, optFns ...func(*dynamodb.Options)) DynamoAPI {
		return dynamodb.NewFromConfig(cfg, optFns...)
	}
)

// DynamoOptions configures the DynamoDB client. Empty credentials fall back
// to the default AWS credential chain.
type DynamoOptions struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	TablePrefix     string
}

// NewDynamoClient builds a DynamoDB client from opts.
func NewDynamoClient(ctx context.Context, opts DynamoOptions) (DynamoAPI, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newDynamoClientFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}

// DynamoStore maps each collection to the table <prefix><collection>, keyed by
// the collection's partition (and optional sort) attribute.
type DynamoStore struct {
	api    DynamoAPI
	prefix string
	logger logging.Logger
}

func NewDynamoStore(api DynamoAPI, tablePrefix string, logger logging.Logger) *DynamoStore {
	return &DynamoStore{api: api, prefix: tablePrefix, logger: logger}
}

func (s *DynamoStore) table(c Collection) *string {
	return aws.String(s.prefix + c.Name)
}

func (s *DynamoStore) key(c Collection, k Key) map[string]types.AttributeValue {
	out := map[string]types.AttributeValue{
		c.PartitionKey: &types.AttributeValueMemberS{Value: k.Partition},
	}
	if c.SortKey != "" {
		out[c.SortKey] = &types.AttributeValueMemberS{Value: k.Sort}
	}
	return out
}

func marshalRecord(c Collection, v any) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode record: %v", common.ErrValidation, err)
	}
	for _, attr := range []string{c.PartitionKey, c.SortKey} {
		if attr == "" {
			continue
		}
		s, ok := av[attr].(*types.AttributeValueMemberS)
		if !ok || s.Value == "" {
			return nil, fmt.Errorf("%w: %s: missing %s", common.ErrValidation, c.Name, attr)
		}
	}
	return av, nil
}

func unmarshalRecord(av map[string]types.AttributeValue, v any) error {
	if err := attributevalue.UnmarshalMap(av, v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrCorruptRecord, err)
	}
	return nil
}

func (s *DynamoStore) Put(ctx context.Context, c Collection, v any) error {
	av, err := marshalRecord(c, v)
	if err != nil {
		return err
	}
	if _, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{TableName: s.table(c), Item: av}); err != nil {
		return unavailable("put", c, err)
	}
	return nil
}

func (s *DynamoStore) Insert(ctx context.Context, c Collection, v any) error {
	av, err := marshalRecord(c, v)
	if err != nil {
		return err
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(c.PartitionKey))).
		Build()
	if err != nil {
		return fmt.Errorf("build condition: %w", err)
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 s.table(c),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	var ccf *types.ConditionalCheckFailedException
	switch {
	case errors.As(err, &ccf):
		return fmt.Errorf("insert %s: %w", c.Name, common.ErrAlreadyExists)
	case err != nil:
		return unavailable("insert", c, err)
	}
	return nil
}

func (s *DynamoStore) Get(ctx context.Context, c Collection, k Key, v any) error {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      s.table(c),
		Key:            s.key(c, k),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return unavailable("get", c, err)
	}
	if len(out.Item) == 0 {
		return fmt.Errorf("get %s %s: %w", c.Name, k, common.ErrorNotFound)
	}
	return unmarshalRecord(out.Item, v)
}

func filterCondition(f Filter) expression.ConditionBuilder {
	cond := expression.Name(f[0].Field).Equal(expression.Value(f[0].Value))
	for _, c := range f[1:] {
		cond = cond.And(expression.Name(c.Field).Equal(expression.Value(c.Value)))
	}
	return cond
}

func (s *DynamoStore) Scan(ctx context.Context, c Collection, f Filter, visit func(Decoder) error) error {
	in := &dynamodb.ScanInput{
		TableName:      s.table(c),
		ConsistentRead: aws.Bool(true),
	}
	if len(f) > 0 {
		expr, err := expression.NewBuilder().WithFilter(filterCondition(f)).Build()
		if err != nil {
			return fmt.Errorf("%w: build filter: %v", common.ErrValidation, err)
		}
		in.FilterExpression = expr.Filter()
		in.ExpressionAttributeNames = expr.Names()
		in.ExpressionAttributeValues = expr.Values()
	}

	p := dynamodb.NewScanPaginator(s.api, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return unavailable("scan", c, err)
		}
		for _, av := range page.Items {
			dec := func(v any) error { return unmarshalRecord(av, v) }
			if err := visitRecord(ctx, s.logger, c, dec, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

// Update sends the whole mutation as one conditional UpdateItem. When the
// condition fails DynamoDB returns the old item, which tells a missing key
// apart from a failed If.
func (s *DynamoStore) Update(ctx context.Context, c Collection, k Key, u *Update, v any) error {
	if u.empty() {
		return errEmptyUpdate
	}

	var upd expression.UpdateBuilder
	for _, a := range u.sets {
		upd = upd.Set(expression.Name(a.field), expression.Value(a.value))
	}
	for _, a := range u.adds {
		upd = upd.Add(expression.Name(a.field), expression.Value(a.delta))
	}
	cond := expression.AttributeExists(expression.Name(c.PartitionKey))
	for _, pc := range u.conds {
		cond = cond.And(expression.Name(pc.Field).Equal(expression.Value(pc.Value)))
	}

	expr, err := expression.NewBuilder().WithUpdate(upd).WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("%w: build update: %v", common.ErrValidation, err)
	}

	out, err := s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           s.table(c),
		Key:                                 s.key(c, k),
		UpdateExpression:                    expr.Update(),
		ConditionExpression:                 expr.Condition(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	var ccf *types.ConditionalCheckFailedException
	switch {
	case errors.As(err, &ccf):
		if len(ccf.Item) == 0 {
			return fmt.Errorf("update %s %s: %w", c.Name, k, common.ErrorNotFound)
		}
		return fmt.Errorf("update %s %s: %w", c.Name, k, common.ErrConflict)
	case err != nil:
		return unavailable("update", c, err)
	}

	if v == nil {
		return nil
	}
	return unmarshalRecord(out.Attributes, v)
}

func (s *DynamoStore) Delete(ctx context.Context, c Collection, k Key) error {
	if _, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{TableName: s.table(c), Key: s.key(c, k)}); err != nil {
		return unavailable("delete", c, err)
	}
	return nil
}

func (s *DynamoStore) Ping(ctx context.Context) error {
	if _, err := s.api.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)}); err != nil {
		return fmt.Errorf("ping: %w: %w", common.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *DynamoStore) Close() error { return nil }
