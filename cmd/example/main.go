// Command example wires a Transport to a small fake cluster and issues
// one typed request against it, demonstrating the startup sniff and the
// typed-response path end to end without needing a real search cluster
// to talk to.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/dreamware/estransport"
	"github.com/dreamware/estransport/internal/config"
	"github.com/dreamware/estransport/internal/core"
	"github.com/dreamware/estransport/internal/poolstate"
	"github.com/dreamware/estransport/internal/response"
)

func main() {
	servers, seeds := startFakeCluster(3)
	defer func() {
		for _, s := range servers {
			s.Close()
		}
	}()

	cfgPath := ""
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	var seedList []string
	kind := poolstate.Sniffing
	var maxRetryTimeout time.Duration
	if cfgPath != "" {
		clusterCfg, err := config.Load(cfgPath)
		if err != nil {
			log.Fatalf("loading cluster config: %v", err)
		}
		seedList = clusterCfg.Seeds
		kind = clusterCfg.PoolKind()
		maxRetryTimeout = clusterCfg.MaxRetryTimeout
	} else {
		seedList = seeds
	}

	transport, err := estransport.New(estransport.Config{
		Seeds:           seedList,
		PoolKind:        kind,
		MaxRetryTimeout: maxRetryTimeout,
		OnRequestCompleted: func(details *core.HttpDetails) {
			log.Printf("request to %s %s completed: success=%v status=%v audit-events=%d",
				details.Method, details.URI, details.Success, statusOrNil(details), len(details.AuditTrail))
		},
	})
	if err != nil {
		log.Fatalf("building transport: %v", err)
	}

	ctx := context.Background()
	resp, err := estransport.Perform[map[string]any](ctx, transport, response.KindTyped, "GET", "/_cluster/health")
	if err != nil {
		log.Fatalf("request failed: %v", err)
	}
	fmt.Printf("cluster health: %v (node=%s)\n", resp.Body, resp.ApiCall.URI)
}

func statusOrNil(d *core.HttpDetails) any {
	if d.HTTPStatusCode == nil {
		return nil
	}
	return *d.HTTPStatusCode
}

func startFakeCluster(n int) ([]*httptest.Server, []string) {
	var servers []*httptest.Server
	var seeds []string
	for i := 0; i < n; i++ {
		mux := http.NewServeMux()
		mux.HandleFunc("/_cluster/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"status":"green"}`)
		})
		mux.HandleFunc("/_nodes/http", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			nodesJSON := "["
			for j, s := range seeds {
				if j > 0 {
					nodesJSON += ","
				}
				nodesJSON += `"` + s + `"`
			}
			nodesJSON += "]"
			fmt.Fprintf(w, `{"nodes":%s}`, nodesJSON)
		})
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		srv := httptest.NewServer(mux)
		servers = append(servers, srv)
		seeds = append(seeds, srv.URL)
	}
	return servers, seeds
}
