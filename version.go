// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package hostmetrics // import "go.opentelemetry.io/host-metrics"

// Version is the current release of this module. It is reported as the
// instrumentation scope version of all instruments.
func Version() string {
	return "0.1.0"
}
