// Package io reads and writes diagram documents as JSON or YAML.
//
// # Format
//
// A document holds one or more diagrams, each a flat list of elements that
// reference each other by id:
//
//	{
//	  "name": "orders",
//	  "diagrams": [{
//	    "id": "Process_1",
//	    "elements": [
//	      {"id": "Process_1", "type": "process", "kind": "root"},
//	      {"id": "A", "type": "task", "kind": "shape", "parent": "Process_1",
//	       "x": 100, "y": 0, "width": 100, "height": 80, "props": {"name": "Check"}},
//	      {"id": "B", "type": "task", "kind": "shape", "parent": "Process_1",
//	       "x": 300, "y": 0, "width": 100, "height": 80},
//	      {"id": "F", "type": "sequenceFlow", "kind": "connection", "parent": "Process_1",
//	       "source": "A", "target": "B", "waypoints": [{"x": 150, "y": 40}, {"x": 350, "y": 40}]}
//	    ]
//	  }]
//	}
//
// The YAML form uses the same keys. [Import] and [Export] pick the format
// from the file extension: .yaml and .yml are YAML, everything else JSON.
//
// Decoding only checks syntax and fails with IMPORT_FAILED. Elements with
// unknown kinds or dangling references are the editor's concern: it skips
// them with warnings when the document is imported.
package io
