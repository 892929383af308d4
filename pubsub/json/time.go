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

package json

import "time"

const rfc3339Nano = time.RFC3339Nano

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(rfc3339Nano, s)
}

// filetimeEpoch mirrors pubsub/uadp's FILETIME epoch constant; duplicated
// here rather than imported so pubsub/json has no dependency on the
// binary codec package.
var filetimeEpoch = time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC)

func ticksFromTime(t time.Time) uint64 {
	t = t.UTC()
	return uint64(t.Unix()-filetimeEpoch.Unix())*1e7 + uint64(t.Nanosecond()/100)
}

func timeFromTicks(ticks uint64) time.Time {
	return time.Unix(filetimeEpoch.Unix()+int64(ticks/1e7), int64(ticks%1e7)*100).UTC()
}
