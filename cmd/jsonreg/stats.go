package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print pool, cache, and latency status",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer r.Close()

		prometheus, _ := cmd.Flags().GetBool("prometheus")
		if prometheus {
			r.WritePrometheus(os.Stdout)
			return nil
		}

		latency := r.DBLatency()
		fmt.Printf("pool_size=%d idle_connections=%d closed=%v\n", r.PoolSize(), r.IdleConnections(), r.IsClosed())
		fmt.Printf("cache_hits=%d cache_misses=%d cache_hit_rate=%.2f%%\n", r.CacheHits(), r.CacheMisses(), r.CacheHitRate())
		fmt.Printf("db_latency_count=%d mean_ms=%.3f p50_ms=%.3f p99_ms=%.3f\n",
			latency.Count, latency.MeanMillis, latency.P50Millis, latency.P99Millis)
		return nil
	},
}

func init() {
	statsCmd.Flags().Bool("prometheus", false, "print Prometheus text exposition format instead of a human-readable summary")
}
