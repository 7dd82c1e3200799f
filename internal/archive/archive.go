// Package archive keeps a write-only record of completed puzzles. The two
// images and the level JSON go to S3 under puzzles/{attemptId}/ and a summary
// row goes to DynamoDB. Nothing here is ever read back into a session.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/fpang/spot-the-difference/internal/game"
)

// DynamoDB key layout.
const (
	pkPrefix = "PUZZLE#"
	skResult = "RESULT"
)

// DefaultTTL is how long archive rows live when no TTL is configured.
const DefaultTTL = 30 * 24 * time.Hour

// ErrNotCompleted is returned for sessions that have not been solved.
var ErrNotCompleted = errors.New("session is not completed")

// ObjectPutter is the subset of *s3.Client used by the archive.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ItemPutter is the subset of *dynamodb.Client used by the archive.
type ItemPutter interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Record is the DynamoDB row for one completed puzzle.
type Record struct {
	AttemptID       string `dynamodbav:"attemptId"`
	Theme           string `dynamodbav:"theme"`
	Difficulty      string `dynamodbav:"difficulty"`
	DifferenceCount int    `dynamodbav:"differenceCount"`
	ElapsedSeconds  int    `dynamodbav:"elapsedSeconds"`
	CompletedAt     string `dynamodbav:"completedAt"`
	Prefix          string `dynamodbav:"s3Prefix"`
}

// Store writes completed puzzles to S3 and DynamoDB.
type Store struct {
	objects ObjectPutter
	items   ItemPutter
	bucket  string
	table   string
	ttl     time.Duration
	now     func() time.Time
}

// New returns a Store. A non-positive ttl uses DefaultTTL.
func New(objects ObjectPutter, items ItemPutter, bucket, table string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		objects: objects,
		items:   items,
		bucket:  bucket,
		table:   table,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Prefix returns the S3 key prefix for an attempt.
func Prefix(attemptID string) string {
	return "puzzles/" + attemptID + "/"
}

// Archive stores a completed session. Objects are written before the row so
// a row always points at complete data.
func (s *Store) Archive(ctx context.Context, sess game.Session) error {
	if sess.Status != game.StatusCompleted || sess.Level == nil {
		return ErrNotCompleted
	}
	if sess.AttemptID == "" {
		return errors.New("session has no attempt id")
	}
	start := s.now()
	prefix := Prefix(sess.AttemptID)

	levelJSON, err := json.MarshalIndent(sess.Level, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal level: %w", err)
	}
	if err := s.putObject(ctx, prefix+"level.json", "application/json", levelJSON); err != nil {
		return err
	}
	for name, img := range map[string]*game.Image{"base": sess.BaseImage, "modified": sess.ModifiedImage} {
		if img == nil || len(img.Data) == 0 {
			continue
		}
		if err := s.putObject(ctx, prefix+name+extension(img.MIMEType), img.MIMEType, img.Data); err != nil {
			return err
		}
	}

	rec := Record{
		AttemptID:       sess.AttemptID,
		Theme:           sess.Theme,
		Difficulty:      sess.Difficulty.String(),
		DifferenceCount: sess.TotalDifferences(),
		ElapsedSeconds:  sess.ElapsedSeconds,
		CompletedAt:     start.UTC().Format(time.RFC3339),
		Prefix:          prefix,
	}
	if err := s.putRecord(ctx, rec); err != nil {
		return err
	}

	log.Info().
		Str("attemptId", sess.AttemptID).
		Str("bucket", s.bucket).
		Str("prefix", prefix).
		Dur("duration", s.now().Sub(start)).
		Msg("Puzzle archived")
	return nil
}

func (s *Store) putObject(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	log.Debug().Str("key", key).Int("bytes", len(data)).Msg("Archive object uploaded")
	return nil
}

func (s *Store) putRecord(ctx context.Context, rec Record) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	pk := pkPrefix + rec.AttemptID
	item["PK"] = &types.AttributeValueMemberS{Value: pk}
	item["SK"] = &types.AttributeValueMemberS{Value: skResult}
	item["expiresAt"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(s.now().Add(s.ttl).Unix(), 10)}

	_, err = s.items.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem PK=%s SK=%s: %w", pk, skResult, err)
	}
	return nil
}

func extension(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/png":
		return ".png"
	default:
		return ".bin"
	}
}
