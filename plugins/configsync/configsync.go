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

// Package configsync mirrors the vrouter configuration from the remote KV
// data store into the operational database. Changes arriving from the
// watcher are applied on a single goroutine, which is what serializes all
// notifications flowing through the observable tables.
package configsync

import (
	"context"
	"net"
	"sync"

	"github.com/gogo/protobuf/proto"
	"github.com/ligato/cn-infra/datasync"
	"github.com/ligato/cn-infra/db/keyval"
	"github.com/ligato/cn-infra/infra"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/YKonovalov/tf-controller/plugins/configsync/model"
	"github.com/YKonovalov/tf-controller/plugins/oper"
)

// changeChBufferSize is the capacity of the queue between the KV watcher
// and the apply goroutine.
const changeChBufferSize = 1000

// ConfigSync watches the KV data store for VN/VMI/VRF documents and
// applies them to the operational database.
type ConfigSync struct {
	Deps

	broker  keyval.ProtoBroker
	watcher keyval.ProtoWatcher

	changeCh     chan datasync.ProtoWatchResp
	watchCloseCh chan string

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// Deps groups the dependencies of the plugin.
type Deps struct {
	infra.PluginDeps
	OperDB   oper.API
	RemoteDB keyval.KvProtoPlugin
}

// Init lists the current content of the configuration key space, applies
// it and starts watching for changes.
func (c *ConfigSync) Init() error {
	if c.RemoteDB == nil {
		return errors.New("remote DB dependency is not injected")
	}

	c.broker = c.RemoteDB.NewBroker("")
	c.watcher = c.RemoteDB.NewWatcher("")
	c.changeCh = make(chan datasync.ProtoWatchResp, changeChBufferSize)
	c.watchCloseCh = make(chan string)
	c.ctx, c.cancel = context.WithCancel(context.Background())

	prefixes := []string{
		model.KeyPrefix(model.VrfKeyword),
		model.KeyPrefix(model.VnKeyword),
		model.KeyPrefix(model.VmiKeyword),
	}

	err := c.watcher.Watch(c.onChange, c.watchCloseCh, prefixes...)
	if err != nil {
		return errors.Wrap(err, "failed to start watching the KV data store")
	}

	if err := c.resync(prefixes); err != nil {
		return err
	}

	c.wg.Add(1)
	go c.processChanges()
	return nil
}

// Close stops the apply goroutine.
func (c *ConfigSync) Close() error {
	c.cancel()
	c.wg.Wait()
	return nil
}

// resync loads every document reachable under the watched prefixes and
// applies it. VRFs go first so that VNs link up immediately.
func (c *ConfigSync) resync(prefixes []string) error {
	for _, prefix := range prefixes {
		iterator, err := c.broker.ListValues(prefix)
		if err != nil {
			return errors.Wrapf(err, "failed to list values for prefix %s", prefix)
		}
		for {
			kv, stop := iterator.GetNext()
			if stop {
				break
			}
			c.applyValue(kv.GetKey(), kv)
		}
		iterator.Close()
	}
	return nil
}

// onChange runs on the watcher goroutine; it only hands the change over to
// the apply goroutine.
func (c *ConfigSync) onChange(change datasync.ProtoWatchResp) {
	select {
	case c.changeCh <- change:
	default:
		c.Log.Warnf("Channel with changes is full, dropping change for key %s",
			change.GetKey())
	}
}

func (c *ConfigSync) processChanges() {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			return
		case change := <-c.changeCh:
			if change.GetChangeType() == datasync.Delete {
				c.applyDelete(change.GetKey())
			} else {
				c.applyValue(change.GetKey(), change)
			}
		}
	}
}

// lazyValue is the common piece of resync key-values and watch responses:
// deserialization of the stored document into a typed message.
type lazyValue interface {
	GetValue(value proto.Message) error
}

func (c *ConfigSync) applyValue(key string, value lazyValue) {
	keyword, name := model.ParseKey(key)
	switch keyword {
	case model.VnKeyword:
		doc := &model.VnConfig{}
		if err := value.GetValue(doc); err != nil {
			c.Log.Warnf("Failed to de-serialize value for key %s: %v", key, err)
			return
		}
		spec, err := vnSpec(name, doc)
		if err != nil {
			c.Log.Warnf("Ignoring invalid VN document %s: %v", key, err)
			return
		}
		c.OperDB.UpdateVirtualNetwork(spec)

	case model.VmiKeyword:
		doc := &model.VmiConfig{}
		if err := value.GetValue(doc); err != nil {
			c.Log.Warnf("Failed to de-serialize value for key %s: %v", key, err)
			return
		}
		c.OperDB.UpdateVmInterface(vmiSpec(name, doc))

	case model.VrfKeyword:
		doc := &model.VrfConfig{}
		if err := value.GetValue(doc); err != nil {
			c.Log.Warnf("Failed to de-serialize value for key %s: %v", key, err)
			return
		}
		c.OperDB.UpdateVrf(oper.VrfSpec{Name: name, VxlanID: doc.VxlanID})

	default:
		c.Log.Debugf("Ignoring change for unhandled key %s", key)
	}
}

func (c *ConfigSync) applyDelete(key string) {
	keyword, name := model.ParseKey(key)
	switch keyword {
	case model.VnKeyword:
		c.OperDB.DeleteVirtualNetwork(name)
	case model.VmiKeyword:
		c.OperDB.DeleteVmInterface(name)
	case model.VrfKeyword:
		c.OperDB.DeleteVrf(name)
	}
}

// vnSpec converts a VN document into its apply-side representation.
func vnSpec(name string, doc *model.VnConfig) (spec oper.VirtualNetworkSpec, err error) {
	spec = oper.VirtualNetworkSpec{
		Name:              name,
		VxlanRouting:      doc.VxlanRouting,
		LogicalRouterUUID: parseUUID(doc.LogicalRouterUUID),
		VrfName:           doc.VrfName,
	}
	for _, subnet := range doc.IpamSubnets {
		_, prefix, err := net.ParseCIDR(subnet)
		if err != nil {
			return spec, errors.Wrapf(err, "invalid IPAM subnet %s", subnet)
		}
		spec.IpamSubnets = append(spec.IpamSubnets, prefix)
	}
	return spec, nil
}

// vmiSpec converts a VMI document into its apply-side representation.
func vmiSpec(name string, doc *model.VmiConfig) oper.VmInterfaceSpec {
	spec := oper.VmInterfaceSpec{
		Name:              name,
		VnName:            doc.VnName,
		LogicalRouterUUID: parseUUID(doc.LogicalRouterUUID),
	}
	switch doc.DeviceType {
	case "vmi-on-lr":
		spec.DeviceType = oper.DeviceTypeVmiOnLr
	case "vm-on-tap":
		spec.DeviceType = oper.DeviceTypeVmOnTap
	}
	if doc.VmiType == "router" {
		spec.VmiType = oper.VmiTypeRouter
	}
	return spec
}

// parseUUID returns uuid.Nil for empty or malformed strings; a bad UUID in
// a document is treated as a detached object rather than an error.
func parseUUID(s string) uuid.UUID {
	if s == "" {
		return uuid.Nil
	}
	id, err := uuid.FromString(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}
