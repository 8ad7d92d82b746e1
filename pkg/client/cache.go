package client

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/braunma/netbox-topology/pkg/utils"
)

// CacheManager maps slugs and names of NetBox objects to their IDs
type CacheManager struct {
	client *NetBoxClient
	cache  map[string]map[string]uint
	mu     sync.RWMutex
}

// NewCacheManager creates a new cache manager
func NewCacheManager(client *NetBoxClient) *CacheManager {
	return &CacheManager{
		client: client,
		cache:  make(map[string]map[string]uint),
	}
}

// SiteID resolves a site slug, loading the site list on a miss
func (cm *CacheManager) SiteID(ctx context.Context, slug string) (uint, error) {
	if id, ok := cm.GetID("sites", slug); ok {
		return id, nil
	}
	if err := cm.loadResource(ctx, "sites", "dcim/sites", nil); err != nil {
		return 0, fmt.Errorf("failed to load sites: %w", err)
	}
	id, ok := cm.GetID("sites", slug)
	if !ok {
		return 0, fmt.Errorf("site %s not found", slug)
	}
	cm.client.logger.Debug("Found Site: %s (ID: %d)", slug, id)
	return id, nil
}

// loadResource loads a specific resource into cache
func (cm *CacheManager) loadResource(ctx context.Context, resource, path string, filters map[string]interface{}) error {
	app, endpoint, ok := strings.Cut(strings.Trim(path, "/"), "/")
	if !ok || app == "" || endpoint == "" {
		return fmt.Errorf("invalid path: %s", path)
	}

	objects, err := cm.client.Filter(ctx, app, endpoint, filters)
	if err != nil {
		return fmt.Errorf("failed to filter %s: %w", resource, err)
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	index := make(map[string]uint, len(objects))
	for _, obj := range objects {
		id := utils.IDOf(obj["id"])
		if id == 0 {
			continue
		}

		// Index by slug
		if slug, ok := obj["slug"].(string); ok {
			index[slug] = id
		}

		// Index by name/model
		if name, ok := obj["name"].(string); ok {
			index[name] = id
		} else if model, ok := obj["model"].(string); ok {
			index[model] = id
		}
	}
	cm.cache[resource] = index
	return nil
}

// GetID retrieves an ID from the cache
func (cm *CacheManager) GetID(resource, identifier string) (uint, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	id, ok := cm.cache[resource][identifier]
	return id, ok
}
