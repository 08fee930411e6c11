package repository

import "fmt"

// WriteStrategy selects how many tables every mutation touches.
type WriteStrategy string

const (
	// SingleWrite keeps records in the primary table only.
	SingleWrite WriteStrategy = "single"

	// DualWrite mirrors every mutation into a secondary table with the same key.
	// The two writes are sequential and not transactional: if the second one
	// fails the first is not rolled back and the tables diverge until the next
	// successful write of that record. Nothing detects or repairs that.
	DualWrite WriteStrategy = "dual"
)

// Config represents the configuration needed for repository implementations.
type Config struct {
	TableName          string // Primary table, keyed by (userId, todoId)
	SecondaryTableName string // Mirror table used by DualWrite
	UserIndexName      string // Index with partition key userId
	TodoIndexName      string // Index with partition key todoId
	Strategy           WriteStrategy
}

// Validate checks if the configuration has all required fields and valid values.
func (c Config) Validate() error {
	if c.TableName == "" {
		return fmt.Errorf("TableName is required")
	}
	if c.UserIndexName == "" {
		return fmt.Errorf("UserIndexName is required")
	}
	if c.TodoIndexName == "" {
		return fmt.Errorf("TodoIndexName is required")
	}
	switch c.Strategy {
	case SingleWrite:
	case DualWrite:
		if c.SecondaryTableName == "" {
			return fmt.Errorf("SecondaryTableName is required for %s writes", DualWrite)
		}
		if c.SecondaryTableName == c.TableName {
			return fmt.Errorf("SecondaryTableName must differ from TableName")
		}
	default:
		return fmt.Errorf("unknown write strategy %q", c.Strategy)
	}
	return nil
}

// WithDefaults returns a new Config with default values applied for optional fields.
// The strategy follows from whether a secondary table is configured.
func (c Config) WithDefaults() Config {
	config := c
	if config.UserIndexName == "" {
		config.UserIndexName = "UserIdIndex"
	}
	if config.TodoIndexName == "" {
		config.TodoIndexName = "TodoIdIndex"
	}
	if config.Strategy == "" {
		config.Strategy = SingleWrite
		if config.SecondaryTableName != "" {
			config.Strategy = DualWrite
		}
	}
	return config
}

// Tables returns every table a mutation must be applied to, primary first.
func (c Config) Tables() []string {
	if c.Strategy == DualWrite {
		return []string{c.TableName, c.SecondaryTableName}
	}
	return []string{c.TableName}
}
