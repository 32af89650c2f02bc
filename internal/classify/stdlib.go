package classify

// stdlibModules lists top-level standard library module names recognized
// by the default classifier. It is not exhaustive of every historical
// stdlib module, but covers the modules that appear in ordinary project
// code; project-specific additions can be layered on via
// Default.AddThirdPartyHint / AddFirstPartyHint.
var stdlibModules = buildStdlibSet([]string{
	"__future__", "_thread", "abc", "aifc", "argparse", "array", "ast",
	"asyncio", "atexit", "base64", "bdb", "binascii", "bisect", "builtins",
	"bz2", "calendar", "cgi", "cgitb", "chunk", "cmath", "cmd", "code",
	"codecs", "codeop", "collections", "colorsys", "compileall",
	"concurrent", "configparser", "contextlib", "contextvars", "copy",
	"copyreg", "cProfile", "csv", "ctypes", "curses", "dataclasses",
	"datetime", "dbm", "decimal", "difflib", "dis", "doctest", "email",
	"encodings", "ensurepip", "enum", "errno", "faulthandler", "fcntl",
	"filecmp", "fileinput", "fnmatch", "fractions", "ftplib", "functools",
	"gc", "getopt", "getpass", "gettext", "glob", "graphlib", "gzip",
	"hashlib", "heapq", "hmac", "html", "http", "idlelib", "imaplib",
	"imghdr", "imp", "importlib", "inspect", "io", "ipaddress", "itertools",
	"json", "keyword", "lib2to3", "linecache", "locale", "logging", "lzma",
	"mailbox", "mailcap", "marshal", "math", "mimetypes", "mmap",
	"modulefinder", "msilib", "msvcrt", "multiprocessing", "netrc", "nis",
	"nntplib", "numbers", "operator", "optparse", "os", "ossaudiodev",
	"pathlib", "pdb", "pickle", "pickletools", "pipes", "pkgutil",
	"platform", "plistlib", "poplib", "posix", "posixpath", "pprint",
	"profile", "pstats", "pty", "pwd", "py_compile", "pyclbr", "pydoc",
	"queue", "quopri", "random", "re", "readline", "reprlib", "resource",
	"rlcompleter", "runpy", "sched", "secrets", "select", "selectors",
	"shelve", "shlex", "shutil", "signal", "site", "smtplib", "sndhdr",
	"socket", "socketserver", "spwd", "sqlite3", "ssl", "stat",
	"statistics", "string", "stringprep", "struct", "subprocess", "sunau",
	"symtable", "sys", "sysconfig", "syslog", "tabnanny", "tarfile",
	"telnetlib", "tempfile", "termios", "test", "textwrap", "threading",
	"time", "timeit", "tkinter", "token", "tokenize", "tomllib", "trace",
	"traceback", "tracemalloc", "tty", "turtle", "turtledemo", "types",
	"typing", "unicodedata", "unittest", "urllib", "uu", "uuid", "venv",
	"warnings", "wave", "weakref", "webbrowser", "winreg", "winsound",
	"wsgiref", "xdrlib", "xml", "xmlrpc", "zipapp", "zipfile", "zipimport",
	"zlib", "zoneinfo",
})

func buildStdlibSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// isStdlib reports whether the top-level package of dottedName is a known
// standard library module.
func isStdlib(dottedName string) bool {
	top := dottedName
	for i, c := range dottedName {
		if c == '.' {
			top = dottedName[:i]
			break
		}
	}
	return stdlibModules[top]
}
