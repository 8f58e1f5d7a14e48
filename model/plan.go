package model

import "github.com/spf13/viper"

const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// LimitFor returns the monthly request ceiling for a plan. Unknown
// plans fall back to the free tier cap
func LimitFor(plan string) int {
	switch plan {
	case PlanPro:
		return viper.GetInt("quota.pro_limit")
	case PlanEnterprise:
		return viper.GetInt("quota.enterprise_limit")
	default:
		return viper.GetInt("quota.free_limit")
	}
}
