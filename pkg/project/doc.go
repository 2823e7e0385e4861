// Package project manages a migen project on disk: its layout, its
// configuration and the paths derived from it.
//
// A project follows this layout:
//
//	project-root/
//	├── migen.yaml              # project configuration
//	├── entities.yaml           # entity descriptors
//	├── .migen/
//	│   └── manifest.yaml       # last known schema (written by generate)
//	└── db/
//	    └── migration/
//	        ├── migen.sum       # integrity file
//	        ├── V2__create_book_sequence.sql
//	        └── V3__create_book_table.sql
//
// Every path in migen.yaml is relative to the project root. Initialize
// creates any part of the layout that is missing and never touches existing
// files, so it is safe to run in an established project.
package project
