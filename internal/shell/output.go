package shell

import "bytes"

// collector captures command output up to maxBytes and flags the overflow
// instead of failing. Binary streams are replaced wholesale so a stray
// `cat binary` cannot wreck the terminal or the conversation history.
type collector struct {
	buffer    bytes.Buffer
	maxBytes  int
	truncated bool
	isBinary  bool

	bytesChecked int
	sampleSize   int
}

func newCollector(maxBytes int, sampleSize int) *collector {
	return &collector{maxBytes: maxBytes, sampleSize: sampleSize}
}

func (c *collector) Write(p []byte) (int, error) {
	if c.isBinary {
		return len(p), nil
	}

	if c.bytesChecked < c.sampleSize {
		remaining := c.sampleSize - c.bytesChecked
		sample := p
		if len(sample) > remaining {
			sample = sample[:remaining]
		}
		if bytes.IndexByte(sample, 0) >= 0 {
			c.isBinary = true
			c.truncated = true
			return len(p), nil
		}
		c.bytesChecked += len(sample)
	}

	space := c.maxBytes - c.buffer.Len()
	if space <= 0 {
		c.truncated = true
		return len(p), nil
	}

	toWrite := p
	if len(toWrite) > space {
		toWrite = toWrite[:space]
		c.truncated = true
	}
	if _, err := c.buffer.Write(toWrite); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *collector) String() string {
	if c.isBinary {
		return "[binary content]"
	}
	return c.buffer.String()
}

func (c *collector) Truncated() bool {
	return c.truncated
}
