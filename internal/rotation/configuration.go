package rotation

import (
	"encoding/json"
	"os"
	"strconv"
	"time"
)

// DefaultInterval is used when a timer has to be armed without a configured
// interval.
const DefaultInterval = 3600 * time.Second

// StatFunc reports file information; os.Stat in production.
type StatFunc func(name string) (os.FileInfo, error)

// Configuration is an immutable snapshot of the rotation settings. The
// controller replaces it wholesale; the With* helpers return modified copies.
//
// Directory is always a clean absolute path without a file:// prefix.
// Delay and Interval are whole seconds.
type Configuration struct {
	Directory string
	Delay     time.Duration
	Interval  time.Duration
	Paused    bool
}

// WithDirectory returns a copy with Directory replaced.
func (c Configuration) WithDirectory(dir string) Configuration {
	c.Directory = dir
	return c
}

// WithDelay returns a copy with Delay replaced.
func (c Configuration) WithDelay(d time.Duration) Configuration {
	c.Delay = d
	return c
}

// WithInterval returns a copy with Interval replaced.
func (c Configuration) WithInterval(d time.Duration) Configuration {
	c.Interval = d
	return c
}

// WithPaused returns a copy with Paused replaced.
func (c Configuration) WithPaused(p bool) Configuration {
	c.Paused = p
	return c
}

// Valid reports whether a rotation may run: the directory is set and exists
// as a directory, and delay and interval are at least one second.
// Pause state is not considered.
func (c Configuration) Valid(stat StatFunc) bool {
	if c.Directory == "" || c.Delay < time.Second || c.Interval < time.Second {
		return false
	}
	if stat == nil {
		stat = os.Stat
	}
	info, err := stat(c.Directory)
	return err == nil && info.IsDir()
}

// DelayArg renders Delay as the picker's integer seconds argument.
func (c Configuration) DelayArg() string {
	return strconv.FormatInt(int64(c.Delay/time.Second), 10)
}

type configurationJSON struct {
	Directory       string `json:"directory"`
	DelaySeconds    int64  `json:"delay_seconds"`
	IntervalSeconds int64  `json:"interval_seconds"`
	Paused          bool   `json:"paused"`
}

// MarshalJSON renders durations as whole seconds.
func (c Configuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(configurationJSON{
		Directory:       c.Directory,
		DelaySeconds:    int64(c.Delay / time.Second),
		IntervalSeconds: int64(c.Interval / time.Second),
		Paused:          c.Paused,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (c *Configuration) UnmarshalJSON(data []byte) error {
	var raw configurationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Configuration{
		Directory: raw.Directory,
		Delay:     time.Duration(raw.DelaySeconds) * time.Second,
		Interval:  time.Duration(raw.IntervalSeconds) * time.Second,
		Paused:    raw.Paused,
	}
	return nil
}
