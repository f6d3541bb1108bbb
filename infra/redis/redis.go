package redis

import (
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/redis"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

var (
	service *projects.Service
)

func SetupRedis(ctx *pulumi.Context, prov *gcp.Provider) (*projects.Service, error) {
	var err error
	service, err = projects.NewService(ctx, "redisService", &projects.ServiceArgs{
		Service: pulumi.String("redis.googleapis.com"),
	}, pulumi.Provider(prov))
	if err != nil {
		return nil, err
	}

	return service, nil
}

// CreateInstance creates the Memorystore instance that backs the refresh
// coordinator and returns its host:port address.
func CreateInstance(ctx *pulumi.Context, prov *gcp.Provider, instanceID string) (pulumi.StringOutput, error) {
	gcpCfg := config.New(ctx, "gcp")
	region := gcpCfg.Require("region")

	inst, err := redis.NewInstance(ctx, instanceID, &redis.InstanceArgs{
		Name:         pulumi.String(instanceID),
		Tier:         pulumi.String("BASIC"),
		MemorySizeGb: pulumi.Int(1),
		Region:       pulumi.String(region),
	},
		pulumi.Provider(prov),
		pulumi.DependsOn([]pulumi.Resource{service}),
	)
	if err != nil {
		return pulumi.String("").ToStringOutput(), err
	}

	return pulumi.Sprintf("%s:%d", inst.Host, inst.Port), nil
}
