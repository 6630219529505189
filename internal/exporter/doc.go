// Package exporter persists datasets as delimited text.
//
// Files are UTF-8 CSV with a byte order mark so Excel opens Chinese
// headers correctly. Every write is a full rewrite: rows go to a temporary
// file in the destination directory which then replaces the target with a
// rename, so a reader sees either the old file or the new one, never a mix.
//
//	w := exporter.NewCSVWriter(logger)
//	if err := w.WriteDataset("datas/wechat_operation_data/acct/traffic.csv", ds); err != nil {
//	    return err
//	}
//
//	ds, found, err := exporter.ReadDataset(path)
package exporter
