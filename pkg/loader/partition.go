// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package loader

// Partition computes the contiguous slice of a list of length total owned
// by part idx among parts. The first total%parts parts receive one extra
// element, so no two parts differ in length by more than one and the union
// of all parts covers [0, total) exactly once.
//
// Partition is a pure function of its inputs: two processes configured with
// the same (total, parts) but different idx never overlap and never leave a
// gap. Parts beyond total receive zero-length slices.
func Partition(total, parts, idx int) (offset, length int) {
	q := total / parts
	r := total % parts

	if idx < r {
		return (q + 1) * idx, q + 1
	}
	return (q+1)*r + q*(idx-r), q
}

// threadSlices applies Partition twice: once to pick this loader instance's
// slice of the global work list, then again to split that slice across
// numThreads workers. The returned offsets are absolute indexes into the
// global list.
func threadSlices(total, numLoaders, loaderIdx, numThreads int) [][2]int {
	loadOffset, loadLength := Partition(total, numLoaders, loaderIdx)

	slices := make([][2]int, numThreads)
	for i := 0; i < numThreads; i++ {
		toff, tlen := Partition(loadLength, numThreads, i)
		slices[i] = [2]int{loadOffset + toff, tlen}
	}
	return slices
}
