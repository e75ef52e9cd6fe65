// Package secrets resolves configuration values that point at AWS SSM
// Parameter Store, written as "ssm:/path/to/parameter".
package secrets

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Prefix marks a value as a parameter reference.
const Prefix = "ssm:"

// IsReference reports whether v names a parameter.
func IsReference(v string) bool {
	return strings.HasPrefix(v, Prefix) && len(v) > len(Prefix)
}

// SSMAPI is the subset of the SSM client used here.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Resolver fetches and memoizes parameters. Safe for concurrent use.
type Resolver struct {
	client SSMAPI

	mu    sync.Mutex
	cache map[string]string
}

// NewResolver loads the default AWS credential chain for region.
func NewResolver(ctx context.Context, region string) (*Resolver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewResolverWithClient(ssm.NewFromConfig(cfg)), nil
}

// NewResolverWithClient uses an existing client.
func NewResolverWithClient(client SSMAPI) *Resolver {
	return &Resolver{client: client, cache: make(map[string]string)}
}

// Resolve returns v unchanged unless it is a reference, in which case the
// decrypted parameter value is returned.
func (r *Resolver) Resolve(ctx context.Context, v string) (string, error) {
	if !IsReference(v) {
		return v, nil
	}
	name := strings.TrimPrefix(v, Prefix)

	r.mu.Lock()
	cached, ok := r.cache[name]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	resp, err := r.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("reading parameter %s: %w", name, err)
	}
	if resp.Parameter == nil || resp.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s has no value", name)
	}
	value := *resp.Parameter.Value

	r.mu.Lock()
	r.cache[name] = value
	r.mu.Unlock()
	return value, nil
}

// ResolveAll resolves each pointer in place. It stops at the first error.
func (r *Resolver) ResolveAll(ctx context.Context, fields ...*string) error {
	for _, f := range fields {
		v, err := r.Resolve(ctx, *f)
		if err != nil {
			return err
		}
		*f = v
	}
	return nil
}
