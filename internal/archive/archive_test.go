package archive

import (
	"context"
	"errors"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fpang/spot-the-difference/internal/game"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
		f.types = map[string]string{}
	}
	f.objects[*in.Key] = data
	f.types[*in.Key] = *in.ContentType
	return &s3.PutObjectOutput{}, nil
}

type fakeDynamo struct {
	inputs []*dynamodb.PutItemInput
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.inputs = append(f.inputs, in)
	return &dynamodb.PutItemOutput{}, nil
}

func completed() game.Session {
	return game.Session{
		Status:     game.StatusCompleted,
		Difficulty: game.Easy,
		AttemptID:  "a1",
		Theme:      "キッチン",
		Level: &game.Level{
			Theme: "キッチン",
			Differences: []game.Difference{
				{ID: "1", X: 10, Y: 10, Found: true},
				{ID: "2", X: 50, Y: 50, Found: true},
				{ID: "3", X: 90, Y: 90, Found: true},
			},
		},
		BaseImage:      &game.Image{Data: []byte("base"), MIMEType: "image/png"},
		ModifiedImage:  &game.Image{Data: []byte("mod"), MIMEType: "image/jpeg"},
		FoundCount:     3,
		ElapsedSeconds: 42,
	}
}

func TestArchive(t *testing.T) {
	objects := &fakeS3{}
	items := &fakeDynamo{}
	s := New(objects, items, "bucket", "table", time.Hour)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.Archive(context.Background(), completed()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var keys []string
	for k := range objects.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	want := []string{"puzzles/a1/base.png", "puzzles/a1/level.json", "puzzles/a1/modified.jpg"}
	if len(keys) != len(want) {
		t.Fatalf("expected keys %v, got %v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("expected key %q, got %q", want[i], keys[i])
		}
	}
	if objects.types["puzzles/a1/modified.jpg"] != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", objects.types["puzzles/a1/modified.jpg"])
	}

	if len(items.inputs) != 1 {
		t.Fatalf("expected 1 PutItem, got %d", len(items.inputs))
	}
	in := items.inputs[0]
	if *in.TableName != "table" {
		t.Errorf("expected table, got %q", *in.TableName)
	}
	pk := in.Item["PK"].(*types.AttributeValueMemberS).Value
	if pk != "PUZZLE#a1" {
		t.Errorf("expected PUZZLE#a1, got %q", pk)
	}
	ttl := in.Item["expiresAt"].(*types.AttributeValueMemberN).Value
	if want := "1767326645"; ttl != want {
		t.Errorf("expected expiresAt %s, got %s", want, ttl)
	}

	var rec Record
	if err := attributevalue.UnmarshalMap(in.Item, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Difficulty != "easy" || rec.DifferenceCount != 3 || rec.ElapsedSeconds != 42 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.CompletedAt != "2026-01-02T03:04:05Z" {
		t.Errorf("expected completedAt 2026-01-02T03:04:05Z, got %q", rec.CompletedAt)
	}
}

func TestArchiveRejectsUnfinished(t *testing.T) {
	s := New(&fakeS3{}, &fakeDynamo{}, "b", "t", 0)
	sess := completed()
	sess.Status = game.StatusPlaying
	if err := s.Archive(context.Background(), sess); !errors.Is(err, ErrNotCompleted) {
		t.Errorf("expected ErrNotCompleted, got %v", err)
	}
}

func TestArchiveUploadFailureSkipsRecord(t *testing.T) {
	items := &fakeDynamo{}
	s := New(&fakeS3{err: errors.New("access denied")}, items, "b", "t", 0)
	if err := s.Archive(context.Background(), completed()); err == nil {
		t.Fatal("expected an upload error")
	}
	if len(items.inputs) != 0 {
		t.Errorf("expected no DynamoDB write, got %d", len(items.inputs))
	}
}
