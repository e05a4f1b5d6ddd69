// Package s3table is a remote mirror store kept as msgpack objects in an S3
// compatible bucket (AWS S3, Cloudflare R2, MinIO). Each owner's rows of a
// table live in one object: {prefix}/{table}/{owner}.msgpack.
package s3table

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/tradebook/internal/domain"
)

// OwnerColumn partitions every table
const OwnerColumn = "user_id"

const idColumn = "id"

// ObjectAPI is the subset of the S3 client the store needs
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds bucket location and credentials
type Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string // empty for AWS, account endpoint for R2
	AccessKey string
	SecretKey string
}

// Store implements domain.RemoteStore on top of object storage
type Store struct {
	api    ObjectAPI
	bucket string
	prefix string
	mu     sync.Mutex
	log    zerolog.Logger
}

var _ domain.RemoteStore = (*Store)(nil)

// New builds an S3 client from cfg and returns a store over it
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewStore(client, cfg.Bucket, cfg.Prefix, log), nil
}

// NewStore creates a store over an existing object API
func NewStore(api ObjectAPI, bucket, prefix string, log zerolog.Logger) *Store {
	return &Store{
		api:    api,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		log:    log.With().Str("client", "s3table").Str("bucket", bucket).Logger(),
	}
}

func (s *Store) key(table, owner string) string {
	if s.prefix == "" {
		return table + "/" + owner + ".msgpack"
	}
	return s.prefix + "/" + table + "/" + owner + ".msgpack"
}

func ownerOf(values map[string]interface{}) (string, error) {
	owner, ok := values[OwnerColumn].(string)
	if !ok || owner == "" {
		return "", fmt.Errorf("%s is required", OwnerColumn)
	}
	return owner, nil
}

func (s *Store) load(ctx context.Context, table, owner string) ([]domain.Row, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(table, owner)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s object: %w", table, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s object: %w", table, err)
	}

	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)

	var raw []map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s object: %w", table, err)
	}

	rows := make([]domain.Row, len(raw))
	for i, r := range raw {
		rows[i] = domain.Row(r)
	}
	return rows, nil
}

func (s *Store) save(ctx context.Context, table, owner string, rows []domain.Row) error {
	raw := make([]map[string]interface{}, len(rows))
	for i, r := range rows {
		raw[i] = map[string]interface{}(r)
	}

	data, err := msgpack.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to encode %s rows: %w", table, err)
	}

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(table, owner)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/msgpack"),
	})
	if err != nil {
		return fmt.Errorf("failed to put %s object: %w", table, err)
	}

	s.log.Debug().Str("table", table).Str("owner_id", owner).Int("rows", len(rows)).Msg("Object written")
	return nil
}

// Select returns the rows matching filter. The filter must name the owner.
func (s *Store) Select(ctx context.Context, table string, filter domain.Filter) ([]domain.Row, error) {
	owner, err := ownerOf(filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.load(ctx, table, owner)
	if err != nil {
		return nil, err
	}

	matched := make([]domain.Row, 0, len(rows))
	for _, row := range rows {
		if row.Matches(filter) {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

// Insert appends rows, assigning each a remote id
func (s *Store) Insert(ctx context.Context, table string, rows []domain.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byOwner, err := groupByOwner(rows)
	if err != nil {
		return err
	}

	for owner, batch := range byOwner {
		existing, err := s.load(ctx, table, owner)
		if err != nil {
			return err
		}
		for _, row := range batch {
			existing = append(existing, withID(row))
		}
		if err := s.save(ctx, table, owner, existing); err != nil {
			return err
		}
	}
	return nil
}

// Update merges values into every row matching filter
func (s *Store) Update(ctx context.Context, table string, filter domain.Filter, values domain.Row) error {
	owner, err := ownerOf(filter)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.load(ctx, table, owner)
	if err != nil {
		return err
	}

	changed := false
	for _, row := range rows {
		if !row.Matches(filter) {
			continue
		}
		for col, v := range values {
			if col == idColumn || col == OwnerColumn {
				continue
			}
			row[col] = v
		}
		changed = true
	}
	if !changed {
		return nil
	}
	return s.save(ctx, table, owner, rows)
}

// Delete removes rows matching filter. A filter naming only the owner drops
// the whole object.
func (s *Store) Delete(ctx context.Context, table string, filter domain.Filter) error {
	owner, err := ownerOf(filter)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(filter) == 1 {
		_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(table, owner)),
		})
		if err != nil {
			return fmt.Errorf("failed to delete %s object: %w", table, err)
		}
		return nil
	}

	rows, err := s.load(ctx, table, owner)
	if err != nil {
		return err
	}

	kept := make([]domain.Row, 0, len(rows))
	for _, row := range rows {
		if !row.Matches(filter) {
			kept = append(kept, row)
		}
	}
	if len(kept) == len(rows) {
		return nil
	}
	return s.save(ctx, table, owner, kept)
}

// Upsert replaces rows that share every conflict column value and appends the rest
func (s *Store) Upsert(ctx context.Context, table string, rows []domain.Row, conflictColumns []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byOwner, err := groupByOwner(rows)
	if err != nil {
		return err
	}

	for owner, batch := range byOwner {
		existing, err := s.load(ctx, table, owner)
		if err != nil {
			return err
		}

		for _, row := range batch {
			key := domain.Filter{}
			for _, col := range conflictColumns {
				key[col] = row[col]
			}

			merged := false
			for _, current := range existing {
				if !current.Matches(key) {
					continue
				}
				for col, v := range row {
					if col == idColumn {
						continue
					}
					current[col] = v
				}
				merged = true
				break
			}
			if !merged {
				existing = append(existing, withID(row))
			}
		}

		if err := s.save(ctx, table, owner, existing); err != nil {
			return err
		}
	}
	return nil
}

func groupByOwner(rows []domain.Row) (map[string][]domain.Row, error) {
	byOwner := make(map[string][]domain.Row)
	for _, row := range rows {
		owner, err := ownerOf(row)
		if err != nil {
			return nil, err
		}
		byOwner[owner] = append(byOwner[owner], row)
	}
	return byOwner, nil
}

func withID(row domain.Row) domain.Row {
	out := make(domain.Row, len(row)+1)
	for col, v := range row {
		out[col] = v
	}
	if _, ok := out[idColumn]; !ok {
		out[idColumn] = uuid.NewString()
	}
	return out
}
