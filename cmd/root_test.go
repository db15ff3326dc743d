package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shouni/race-result-pipe-go/pkg/builder"
)

func TestBuildConfigMapsAllFlags(t *testing.T) {
	saved := Flags
	defer func() { Flags = saved }()

	Flags = AppFlags{
		BaseURL:       "https://example.com",
		TimeoutSec:    20,
		Concurrency:   8,
		Strategy:      string(builder.StrategyShared),
		LaunchDelayMS: 250,
	}

	cfg := buildConfig()

	assert.Equal(t, "https://example.com", cfg.BaseURL)
	assert.Equal(t, 20*time.Second, cfg.NavTimeout)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, builder.StrategyShared, cfg.Strategy)
	assert.Equal(t, 250*time.Millisecond, cfg.LaunchDelay)
}

func TestBuildConfigLaunchDelayDisabled(t *testing.T) {
	saved := Flags
	defer func() { Flags = saved }()

	Flags = AppFlags{LaunchDelayMS: 0}

	assert.Equal(t, time.Duration(0), buildConfig().LaunchDelay)
}
