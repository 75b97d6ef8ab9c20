// Package hclgraph loads render graphs written in HCL.
//
// A graph file is a sequence of top-level blocks. Node blocks keep their
// source order, which is the tie-breaker for the execution order:
//
//	name = "Blur"
//
//	enum "BlendMode" {
//	  items = ["Additive", "Alpha", "Opaque"]
//	}
//
//	variable "radius" {
//	  type    = "Int"
//	  default = 3
//	}
//
//	texture "Color" {
//	  format = "RGBA8_Unorm"
//	  size   = [512, 512, 1]
//	}
//
//	compute_shader "Blur" {
//	  shader     = "blur.hlsl"
//	  reads      = ["Color"]
//	  writes     = ["Output"]
//	  num_threads = [8, 8, 1]
//	  condition {
//	    variable1  = "enabled"
//	    comparison = "IsTrue"
//	  }
//	}
//
//	set_variable "radius" {
//	  op = "PowerOf2GE"
//	  a { literal = 5 }
//	}
//
// Syntax and schema errors wrap rendergraph.ErrParse. Every semantic problem
// found in the graph is collected and reported at once in an error wrapping
// rendergraph.ErrValidation.
package hclgraph
