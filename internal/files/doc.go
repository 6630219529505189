// Package files provides file system operations and download discovery.
//
// Manager copies, moves and lists files and clears the download directory
// between runs. FindExcelFiles and ClassifyDownloads turn the content of
// the download directory into the inputs of the three processing
// pipelines.
//
//	found, err := files.FindExcelFiles(paths.TmpDir)
//	if err != nil {
//	    return err
//	}
//	downloads := files.ClassifyDownloads(found)
package files
