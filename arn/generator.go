package arn

import (
	"fmt"
	"strings"
)

type Generator struct {
	AwsAccountId string
	Region       string
}

func (g Generator) Generate(service string, resourceType string, resourceId string) string {
	return fmt.Sprintf("arn:aws:%s:%s:%s:%s/%s", service, g.Region, g.AwsAccountId, resourceType, resourceId)
}

// ExtractId returns the resource type and resource id from an ARN. An
// unqualified id (no "type/" prefix) comes back with an empty type.
func ExtractId(arn string) (resourceType, id string) {
	parts := strings.Split(arn, ":")
	idWithType := parts[len(parts)-1]
	resourceType, id, found := strings.Cut(idWithType, "/")
	if !found {
		return "", idWithType
	}
	return resourceType, id
}
