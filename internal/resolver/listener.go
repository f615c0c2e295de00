// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"castor-cli/internal/decl"
	"castor-cli/internal/descriptor"
)

// Listeners returns one descriptor per listener tag of d, in tag order.
func (r *Resolver) Listeners(d *decl.Declaration) ([]*descriptor.ListenerDescriptor, error) {
	tags := d.TagsOf(decl.TagListener)
	out := make([]*descriptor.ListenerDescriptor, 0, len(tags))
	for _, tag := range tags {
		args, err := decodeTag[listenerArgs](d, tag)
		if err != nil {
			return nil, err
		}
		out = append(out, &descriptor.ListenerDescriptor{Event: args.Event, Priority: args.Priority, Decl: d})
	}
	return out, nil
}
