// MeepleMind - Board Game Catalog and Recommendation Service
// Copyright 2026 MeepleMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meeplemind/recommender

// Package config loads and validates the service configuration.
//
// Configuration is layered with Koanf v2, lowest priority first:
//
//  1. Built-in defaults
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables (MEEPLE_SERVER_PORT -> server.port)
//
// Later layers override earlier ones, so a deployment only sets the
// values it needs to change.
package config
