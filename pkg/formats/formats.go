// Package formats parses the lighting data of Quake-family BSP levels:
// the header and face lumps of BSP29, BSP30, BSP2 and 2PSB files, external
// .lit files, BSPX extension lumps and the entity lump.
package formats
