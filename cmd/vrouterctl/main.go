// Copyright (c) 2019 Cisco and/or its affiliates.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// vrouterctl is a small operator CLI for inspecting the vrouter agent
// through its REST surface.
package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/ghodss/yaml"
	"github.com/spf13/cobra"

	"github.com/YKonovalov/tf-controller/plugins/vxlanrouting/restapi"
)

var (
	agentAddr  string
	yamlOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "vrouterctl",
	Short: "vrouterctl inspects the state of the vrouter agent",
}

var cmdRoutingMap = &cobra.Command{
	Use:   "routing-map",
	Short: "Show the logical routers with their routing and bridge VRFs",
	Args:  cobra.ExactArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		status, err := fetchRoutingStatus()
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
		if yamlOutput {
			out, err := yaml.Marshal(status)
			if err != nil {
				fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
				os.Exit(1)
			}
			fmt.Print(string(out))
			return
		}
		printRoutingStatus(status)
	},
}

func fetchRoutingStatus() (*restapi.VxlanRoutingStatus, error) {
	resp, err := http.Get("http://" + agentAddr + restapi.RestURLVxlanRouting)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent returned %s", resp.Status)
	}
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	status := &restapi.VxlanRoutingStatus{}
	if err := json.Unmarshal(body, status); err != nil {
		return nil, err
	}
	return status, nil
}

func printRoutingStatus(status *restapi.VxlanRoutingStatus) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "LOGICAL-ROUTER\tROUTING-VRF\tROUTING-VN\tBRIDGE-VN\tBRIDGE-VRF")
	for _, lr := range status.LogicalRouters {
		if len(lr.BridgeVrfs) == 0 {
			fmt.Fprintf(w, "%s\t%s\t%s\t\t\n",
				lr.LogicalRouterUUID, lr.RoutingVrf, lr.ParentRoutingVn)
			continue
		}
		for i, bridge := range lr.BridgeVrfs {
			if i == 0 {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					lr.LogicalRouterUUID, lr.RoutingVrf, lr.ParentRoutingVn,
					bridge.BridgeVn, bridge.BridgeVrf)
			} else {
				fmt.Fprintf(w, "\t\t\t%s\t%s\n", bridge.BridgeVn, bridge.BridgeVrf)
			}
		}
	}
	w.Flush()
}

func main() {
	rootCmd.PersistentFlags().StringVar(&agentAddr, "agent-addr",
		"127.0.0.1:9191", "Address of the vrouter agent REST endpoint")
	cmdRoutingMap.Flags().BoolVar(&yamlOutput, "yaml", false,
		"Print the raw routing map as YAML")
	rootCmd.AddCommand(cmdRoutingMap)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
