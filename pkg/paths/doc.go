// Package paths handles every path translation changepack performs.
//
// It covers two concerns:
//
//   - Locating the deployment root (flag, CHANGEPACK_ROOT, or the current
//     directory) and normalizing user supplied paths (~ expansion, absolute,
//     clean).
//   - Mapping version-controlled items to archive entries. A Mapper turns a
//     server path into a local path through the workspace, computes the
//     root-relative entry name, and resolves pointer files.
//
// # Pointer files
//
// A pointer file is a small tracked file whose content is the path of an
// artifact kept outside version control, e.g. bin/log4net.dll.refresh
// containing "..\packages\log4net\lib\log4net.dll". The archive entry is
// named after the pointer with its suffix stripped (bin/log4net.dll) and
// carries the bytes of the referenced artifact.
//
// # Entry names
//
// Entry names are root-relative and always use forward slashes, the zip
// convention. Use LocalName to turn one back into a path under a directory.
package paths
