package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/portfoliodash/backend/infra/cloudrun"
	"github.com/portfoliodash/backend/infra/docker"
	"github.com/portfoliodash/backend/infra/firestore"
	"github.com/portfoliodash/backend/infra/identity"
	"github.com/portfoliodash/backend/infra/provider"
	"github.com/portfoliodash/backend/infra/redis"
	"github.com/portfoliodash/backend/infra/secret"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		// set default provider with the correct project
		prov, err := provider.SetupDefaultProvider(ctx)
		if err != nil {
			return err
		}

		// enable identity service to allow using firebase
		ident, err := identity.SetupIdentity(ctx)
		if err != nil {
			return err
		}

		// enable firestore and create a database for the project
		err = firestore.SetupFirestore(ctx, prov)
		if err != nil {
			return err
		}

		// create docker repo
		repo, err := docker.CreateCloudrunRepo(ctx)
		if err != nil {
			return err
		}

		// memorystore instance backing the refresh coordinator
		_, err = redis.SetupRedis(ctx, prov)
		if err != nil {
			return err
		}
		redisAddr, err := redis.CreateInstance(ctx, prov, "dashboard-coord")
		if err != nil {
			return err
		}

		apiSA, err := cloudrun.SetupCloudRun(ctx, prov, redisAddr, ident, repo)
		if err != nil {
			return err
		}

		// secret manager holds the portfolio data service token
		_, err = secret.SetupSecretManager(ctx, prov, apiSA)
		if err != nil {
			return err
		}

		return nil
	})
}
