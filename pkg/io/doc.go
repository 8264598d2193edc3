// Package io serializes linkage results to JSON and YAML.
//
// # Format
//
// A result is written as a [Document]:
//
//	{
//	  "version": 1,
//	  "id": "5f0c…",
//	  "snapshot_hash": "9a1e…",
//	  "reverse_kind": "direct",
//	  "stats": {"abis": 1, "objects": 3, …},
//	  "abis": [{
//	    "abi": "X86_64",
//	    "objects": [
//	      {"path": "/usr/lib64/libA.so.1", "soname": "libA.so.1", "direct": [], "deps": []},
//	      {"path": "/usr/bin/prog", "direct": ["libB.so.1"], "deps": ["libB.so.1", "libA.so.1"]}
//	    ],
//	    "reverse": {"libB.so.1": ["/usr/bin/prog"]}
//	  }],
//	  "registry": {"providers": […], "paths": […]}
//	}
//
// Each object carries both its direct edges and its closed dependency set.
//
// # Round trip
//
// [ReadJSON] and [ReadYAML] rebuild an equivalent result: the same forward
// graph, registry and reverse graph, with the soname and path views of every
// library aliased to one dependency set again. JSON is the cache format used
// by the pipeline; YAML is meant for people.
package io
