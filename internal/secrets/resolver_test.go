package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	params map[string]string
	calls  int
}

func (f *fakeSSM) GetParameter(ctx context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls++
	if !aws.ToBool(in.WithDecryption) {
		return nil, errors.New("decryption not requested")
	}
	v, ok := f.params[aws.ToString(in.Name)]
	if !ok {
		return nil, errors.New("ParameterNotFound")
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String(v)}}, nil
}

func TestIsReference(t *testing.T) {
	assert.True(t, IsReference("ssm:/sendgrid/api-key"))
	assert.False(t, IsReference("ssm:"))
	assert.False(t, IsReference("SG.plain"))
	assert.False(t, IsReference(""))
}

func TestResolve(t *testing.T) {
	client := &fakeSSM{params: map[string]string{"/sendgrid/api-key": "SG.secret"}}
	r := NewResolverWithClient(client)

	v, err := r.Resolve(context.Background(), "ssm:/sendgrid/api-key")
	require.NoError(t, err)
	assert.Equal(t, "SG.secret", v)

	v, err = r.Resolve(context.Background(), "ssm:/sendgrid/api-key")
	require.NoError(t, err)
	assert.Equal(t, "SG.secret", v)
	assert.Equal(t, 1, client.calls, "memoized")

	v, err = r.Resolve(context.Background(), "SG.plain")
	require.NoError(t, err)
	assert.Equal(t, "SG.plain", v)
	assert.Equal(t, 1, client.calls)
}

func TestResolveMissing(t *testing.T) {
	r := NewResolverWithClient(&fakeSSM{})
	_, err := r.Resolve(context.Background(), "ssm:/nope")
	assert.ErrorContains(t, err, "/nope")
}

func TestResolveAll(t *testing.T) {
	r := NewResolverWithClient(&fakeSSM{params: map[string]string{"/a": "A", "/b": "B"}})
	a, b, c := "ssm:/a", "plain", "ssm:/b"
	require.NoError(t, r.ResolveAll(context.Background(), &a, &b, &c))
	assert.Equal(t, "A", a)
	assert.Equal(t, "plain", b)
	assert.Equal(t, "B", c)

	bad := "ssm:/missing"
	assert.Error(t, r.ResolveAll(context.Background(), &bad))
	assert.Equal(t, "ssm:/missing", bad)
}
