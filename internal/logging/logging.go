/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package logging sets up the standard logrus logger for the pubsub
// command-line tools before handing off to cobra.
package logging

import (
	log "github.com/sirupsen/logrus"
)

// Setup configures the standard logger's level and its formatter: JSON
// when json is true, otherwise plain text with full timestamps. level is
// one of logrus's level names
// ("debug", "info", "warning", "error"); an unrecognized level falls back
// to "info" rather than failing startup over a typo in a config file.
func Setup(level string, json bool) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)

	if json {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
