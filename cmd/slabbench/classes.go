/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudwego/slabvec/cache/mempool"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "classes",
		Short: "Print the size-class table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%5s %6s %6s\n", "class", "size", "align")
			for i := 0; i < mempool.NumClasses; i++ {
				sz := mempool.ClassSize(i)
				fmt.Fprintf(w, "%5d %6d %6d\n", i, sz, mempool.AlignOf(sz))
			}
			return nil
		},
	})
}
