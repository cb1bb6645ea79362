package instance

import "github.com/angelmondragon/packfinderz-cart/pkg/env"

// GetID returns the process instance identifier: the platform dyno name when set,
// then INSTANCE_ID, then "local".
func GetID() string {
	return env.First("local", "DYNO", "INSTANCE_ID")
}
