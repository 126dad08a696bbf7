package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/sindri-systems/jsonreg/lib/registry"
)

// openRegistry builds a registry.Config from viper (flags bound in
// root.go, overridable via JSONREG_* environment variables) and opens
// the registry.
func openRegistry(ctx context.Context) (*registry.Registry, error) {
	connString := viper.GetString("conn-string")
	if connString == "" {
		return nil, fmt.Errorf("conn-string is required (flag --conn-string or JSONREG_CONN_STRING)")
	}

	cfg := registry.Config{
		ConnString:     connString,
		Table:          viper.GetString("table"),
		IDColumn:       viper.GetString("id-column"),
		JSONColumn:     viper.GetString("json-column"),
		PoolSize:       int32(viper.GetInt("pool-size")),
		LRUCacheSize:   viper.GetInt("cache-size"),
		AcquireTimeout: time.Duration(viper.GetInt("acquire-timeout")) * time.Second,
		IdleTimeout:    time.Duration(viper.GetInt("idle-timeout")) * time.Second,
		MaxLifetime:    time.Duration(viper.GetInt("max-lifetime")) * time.Second,
	}

	return registry.Open(ctx, cfg)
}
