package config

import "fmt"

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535] (got %d)", c.Server.Port)
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("database.max_conns (%d) must be >= min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
	}
	if c.Upload.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("upload.max_file_size_bytes must be > 0 (got %d)", c.Upload.MaxFileSizeBytes)
	}
	if c.Upload.MaxRowsPerList <= 0 {
		return fmt.Errorf("upload.max_rows_per_list must be > 0 (got %d)", c.Upload.MaxRowsPerList)
	}
	if c.Registry.IDAllocationRetries <= 0 {
		return fmt.Errorf("registry.id_allocation_retries must be > 0 (got %d)", c.Registry.IDAllocationRetries)
	}
	if c.Registry.DefaultPageSize <= 0 || c.Registry.MaxPageSize < c.Registry.DefaultPageSize {
		return fmt.Errorf("registry page sizes invalid (default %d, max %d)", c.Registry.DefaultPageSize, c.Registry.MaxPageSize)
	}
	if c.Registry.AutomaticMatchThreshold <= 0 || c.Registry.AutomaticMatchThreshold > 1 {
		return fmt.Errorf("registry.automatic_match_threshold must be in (0, 1] (got %g)", c.Registry.AutomaticMatchThreshold)
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline.workers must be > 0 (got %d)", c.Pipeline.Workers)
	}
	if c.Pipeline.QueueSize <= 0 {
		return fmt.Errorf("pipeline.queue_size must be > 0 (got %d)", c.Pipeline.QueueSize)
	}
	return nil
}
