package lambdaboot

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/fpang/spot-the-difference/internal/config"
)

type fakeSSM struct {
	value string
	err   error
	names []string
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.names = append(f.names, *in.Name)
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: aws.String(f.value)}}, nil
}

func TestLoadGeminiKeyFromSSM(t *testing.T) {
	t.Setenv(EnvGeminiKey, "")
	client := &fakeSSM{value: "from-ssm"}

	if err := LoadGeminiKey(context.Background(), client, "/spotdiff/key"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv(EnvGeminiKey); got != "from-ssm" {
		t.Errorf("expected from-ssm, got %q", got)
	}
	if len(client.names) != 1 || client.names[0] != "/spotdiff/key" {
		t.Errorf("expected one lookup of /spotdiff/key, got %v", client.names)
	}
}

func TestLoadGeminiKeyPrefersEnv(t *testing.T) {
	t.Setenv(EnvGeminiKey, "from-env")
	client := &fakeSSM{value: "from-ssm"}

	if err := LoadGeminiKey(context.Background(), client, "/spotdiff/key"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.names) != 0 {
		t.Errorf("expected no SSM call, got %v", client.names)
	}
}

func TestLoadGeminiKeyErrors(t *testing.T) {
	t.Setenv(EnvGeminiKey, "")
	if err := LoadGeminiKey(context.Background(), &fakeSSM{err: errors.New("denied")}, "/p"); err == nil {
		t.Error("expected SSM error")
	}
	if err := LoadGeminiKey(context.Background(), &fakeSSM{value: ""}, "/p"); err == nil {
		t.Error("expected empty parameter error")
	}
	if err := LoadGeminiKey(context.Background(), &fakeSSM{}, ""); err == nil {
		t.Error("expected error without a parameter name")
	}
}

func TestInitArchiveDisabled(t *testing.T) {
	if got := InitArchive(aws.Config{}, config.ArchiveConfig{Bucket: "b"}); got != nil {
		t.Errorf("expected nil archive without a table, got %v", got)
	}
	if got := InitArchive(aws.Config{Region: "us-east-1"}, config.ArchiveConfig{Bucket: "b", Table: "t"}); got == nil {
		t.Error("expected an archive when bucket and table are set")
	}
}
