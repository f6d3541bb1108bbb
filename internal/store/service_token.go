package store

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// serviceTokenStore keeps the bearer token this service presents to the
// portfolio data service in Secret Manager, one secret per environment.
type serviceTokenStore struct {
	client    *secretmanager.Client
	projectID string
	prefix    string
}

func NewServiceTokenStore(client *secretmanager.Client, projectID string) *serviceTokenStore {
	return &serviceTokenStore{
		client:    client,
		projectID: projectID,
		prefix:    "data-service-token",
	}
}

func (s *serviceTokenStore) secretID(env string) string {
	return fmt.Sprintf("%s-%s", s.prefix, env)
}

func (s *serviceTokenStore) secretName(env string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", s.projectID, s.secretID(env))
}

func (s *serviceTokenStore) ensureSecret(ctx context.Context, env string) error {
	name := s.secretName(env)
	_, err := s.client.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{Name: name})
	if status.Code(err) == codes.NotFound {
		_, err = s.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
			Parent:   fmt.Sprintf("projects/%s", s.projectID),
			SecretId: s.secretID(env),
			Secret: &secretmanagerpb.Secret{
				Replication: &secretmanagerpb.Replication{
					Replication: &secretmanagerpb.Replication_Automatic_{Automatic: &secretmanagerpb.Replication_Automatic{}},
				},
			},
		})
	}
	return err
}

func (s *serviceTokenStore) StoreToken(ctx context.Context, env, token string) error {
	if err := s.ensureSecret(ctx, env); err != nil {
		return err
	}
	_, err := s.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent: s.secretName(env),
		Payload: &secretmanagerpb.SecretPayload{
			Data: []byte(token),
		},
	})
	return err
}

func (s *serviceTokenStore) GetToken(ctx context.Context, env string) (string, error) {
	res, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("%s/versions/latest", s.secretName(env)),
	})
	if err != nil {
		return "", err
	}
	return string(res.Payload.Data), nil
}

func (s *serviceTokenStore) DeleteToken(ctx context.Context, env string) error {
	return s.client.DeleteSecret(ctx, &secretmanagerpb.DeleteSecretRequest{
		Name: s.secretName(env),
	})
}
