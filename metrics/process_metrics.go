// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

//go:build linux

package metrics

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var registered atomic.Bool

// registerIOCollector exposes the process disk I/O counters from
// /proc/self/io. Only available on linux.
func registerIOCollector() {
	if registered.CompareAndSwap(false, true) {
		if err := prometheus.Register(&ioCollector{
			readBytes: prometheus.NewDesc(
				prometheus.BuildFQName(namespace, "", "disk_read_bytes"),
				"Total number of bytes read from disk by the process.",
				nil, nil,
			),
			writtenBytes: prometheus.NewDesc(
				prometheus.BuildFQName(namespace, "", "disk_written_bytes"),
				"Total number of bytes written to disk by the process.",
				nil, nil,
			),
		}); err != nil {
			logger.Warn("unable to register io collector", "err", err)
		}
	}
}

type ioCollector struct {
	readBytes    *prometheus.Desc
	writtenBytes *prometheus.Desc
}

func (c *ioCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.readBytes
	ch <- c.writtenBytes
}

func (c *ioCollector) Collect(ch chan<- prometheus.Metric) {
	read, written, err := readProcessIO()
	if err != nil {
		logger.Debug("unable to collect io stats", "err", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.readBytes, prometheus.CounterValue, float64(read))
	ch <- prometheus.MustNewConstMetric(c.writtenBytes, prometheus.CounterValue, float64(written))
}

func readProcessIO() (read uint64, written uint64, err error) {
	f, err := os.Open("/proc/self/io")
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		key, value, found := strings.Cut(line, ": ")
		if !found {
			continue
		}
		switch key {
		case "read_bytes":
			read, err = strconv.ParseUint(value, 10, 64)
		case "write_bytes":
			written, err = strconv.ParseUint(value, 10, 64)
		}
		if err != nil {
			return 0, 0, fmt.Errorf("parse %s: %w", key, err)
		}
	}
	return read, written, scanner.Err()
}
