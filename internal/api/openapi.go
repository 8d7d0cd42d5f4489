// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package api

import (
	_ "embed"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// OpenAPISpec returns the embedded API description with its server entry pointed at baseURL.
func OpenAPISpec(baseURL string) ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(openAPIDocument, &doc); err != nil {
		return nil, errors.Wrap(err, "parse embedded openapi document")
	}

	serverURL := strings.TrimSuffix(baseURL, "/")
	if serverURL == "" {
		serverURL = "/"
	}
	doc["servers"] = []map[string]string{{"url": serverURL}}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "encode openapi document")
	}
	return out, nil
}
