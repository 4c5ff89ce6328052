package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrResolutionFailed means the deployment identifier could not be determined
// for this run.
var ErrResolutionFailed = errors.New("schema resolution failed")

// Fixed is the single-schema variant: it always resolves to itself.
type Fixed string

func (f Fixed) Resolve(ctx context.Context) (string, error) {
	return string(f), nil
}

// DeploymentResolver fetches the deployment id from an HTTP endpoint that
// returns {"deploymentId": "<id>"}; per-tenant deployments use it to qualify
// table names.
type DeploymentResolver struct {
	http *resty.Client
	url  string
}

func NewDeploymentResolver(url string) *DeploymentResolver {
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetHeader("User-Agent", "bountyrank/1.0")

	return &DeploymentResolver{http: client, url: url}
}

func (r *DeploymentResolver) Resolve(ctx context.Context) (string, error) {
	resp, err := r.http.R().SetContext(ctx).Get(r.url)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("%w: deployment endpoint status %s", ErrResolutionFailed, resp.Status())
	}

	var payload struct {
		DeploymentID string `json:"deploymentId"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return "", fmt.Errorf("%w: decode deployment payload: %v", ErrResolutionFailed, err)
	}
	if payload.DeploymentID == "" {
		return "", fmt.Errorf("%w: deployment payload missing deploymentId", ErrResolutionFailed)
	}
	return payload.DeploymentID, nil
}
