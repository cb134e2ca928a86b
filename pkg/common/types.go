// Copyright 2023 Paolo Fabio Zaino
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

// DbgLevel is the severity of a debug message. Lower values are more
// severe; DbgLvlFatal..DbgLvlInfo are always logged, DbgLvlDebug and below
// are logged only once the configured debug level is at least as verbose.
type DbgLevel int

const (
	// DbgLvlFatal logs unconditionally and exits the process.
	DbgLvlFatal DbgLevel = iota
	// DbgLvlError logs unconditionally.
	DbgLvlError
	// DbgLvlWarn logs unconditionally.
	DbgLvlWarn
	// DbgLvlInfo logs unconditionally.
	DbgLvlInfo
	// DbgLvlDebug is the least verbose opt-in debug level.
	DbgLvlDebug
	// DbgLvlDebug2 is a more verbose debug level.
	DbgLvlDebug2
	// DbgLvlDebug3 is the most verbose debug level.
	DbgLvlDebug3
)

var debugLevel DbgLevel
