package server

import (
	"fmt"
	"net/http" //nolint:stylecheck
	// Disabled lint warning on the following as we're only listening on localhost so shouldn't be an issue?
	//nolint:gosec
	_ "net/http/pprof" //nolint:stylecheck
	//nolint:stylecheck
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/quarrydb/quarry/cache"
	"github.com/quarrydb/quarry/conf"
	"github.com/quarrydb/quarry/dag"
	"github.com/quarrydb/quarry/failinject"
	"github.com/quarrydb/quarry/lifecycle"
	"github.com/quarrydb/quarry/metrics"
	"github.com/quarrydb/quarry/metrics/prometheus"
	"github.com/quarrydb/quarry/storage"
)

func NewServer(config conf.Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	var store storage.Provider
	if config.TestServer {
		store = storage.NewFakeStorage()
	} else {
		store = storage.NewPebbleStorage(config.DataDir)
	}
	var injector failinject.Injector
	if config.EnableFailureInjector {
		injector = failinject.NewInjector()
	} else {
		injector = failinject.NewDummyInjector()
	}
	var resultCache cache.ResultCache
	if config.EnableResultCache {
		resultCache = cache.NewResultCache(config.ResultCacheMaxEntries, store)
	}
	engine := dag.NewEngine(config, store, resultCache, injector)
	catalog := NewCatalog()
	lifecycleEndpoints := lifecycle.NewLifecycleEndpoints(config)

	services := []service{
		store,
		injector,
		catalog,
		engine,
		lifecycleEndpoints,
	}
	var metricsFactory metrics.Factory
	if config.EnableMetrics {
		metricsFactory = prometheus.NewFactory(config)
		services = append(services, metricsFactory)
	}

	server := Server{
		conf:               config,
		nodeID:             config.NodeID,
		store:              store,
		resultCache:        resultCache,
		engine:             engine,
		catalog:            catalog,
		injector:           injector,
		lifecycleEndpoints: lifecycleEndpoints,
		metricsFactory:     metricsFactory,
		services:           services,
	}
	return &server, nil
}

type Server struct {
	lock               sync.RWMutex
	nodeID             int
	store              storage.Provider
	resultCache        cache.ResultCache
	engine             *dag.Engine
	catalog            *Catalog
	injector           failinject.Injector
	lifecycleEndpoints *lifecycle.Endpoints
	metricsFactory     metrics.Factory
	services           []service
	started            bool
	conf               conf.Config
	debugServer        *http.Server
}

type service interface {
	Start() error
	Stop() error
}

func (s *Server) Start() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.started {
		return nil
	}

	if s.conf.Debug {
		addr := fmt.Sprintf("localhost:%d", s.nodeID+6676)
		s.debugServer = &http.Server{Addr: addr}
		go func(srv *http.Server) {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("debug server failed to listen %v", err)
			} else {
				log.Debugf("Started debug server on address %s", addr)
			}
		}(s.debugServer)
	}

	var err error
	for _, s := range s.services {
		if err = s.Start(); err != nil {
			return err
		}
	}
	s.lifecycleEndpoints.SetActive(true)

	s.started = true

	log.Infof("Quarry server %d started", s.nodeID)

	return nil
}

func (s *Server) Stop() error {
	if !s.started {
		return nil
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.debugServer != nil {
		if err := s.debugServer.Close(); err != nil {
			return err
		}
	}
	s.lifecycleEndpoints.SetActive(false)
	for i := len(s.services) - 1; i >= 0; i-- {
		if err := s.services[i].Stop(); err != nil {
			return err
		}
	}
	s.started = false
	return nil
}

func (s *Server) GetEngine() *dag.Engine {
	return s.engine
}

func (s *Server) GetStorage() storage.Provider {
	return s.store
}

func (s *Server) GetCatalog() *Catalog {
	return s.catalog
}

func (s *Server) GetResultCache() cache.ResultCache {
	return s.resultCache
}

func (s *Server) GetFailInjector() failinject.Injector {
	return s.injector
}

func (s *Server) GetLifecycleEndpoints() *lifecycle.Endpoints {
	return s.lifecycleEndpoints
}

func (s *Server) GetConfig() conf.Config {
	return s.conf
}
