package commands

// Example project written by 'init'. Paths are relative to the config file's directory.

const scaffoldConfig = `site:
  title: My Blog
  url: https://example.github.io
  description: Notes and articles
  language: en
  author: Your Name

paths:
  source: src
  layouts: layouts
  static: static
  destination: build
  metadata: metadata.json

build:
  default_layout: default

permalinks:
  pattern: ":dir/:slug"
  linksets:
    posts: ":date/:slug"

collections:
  posts:
    pattern: "posts/**"
    sort_by: date

feed:
  collection: posts
  path: feed.xml
  limit: 20

gist:
  token: ${GITHUB_TOKEN}

serve:
  port: 4000

publish:
  remote: origin
  branch: gh-pages
`

const scaffoldMetadata = `{
  "title": "My Blog",
  "description": "Notes and articles",
  "author": "Your Name"
}
`

const scaffoldHead = `<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ with .Page.Meta.Title }}{{ . }} | {{ end }}{{ .Site.title }}</title>
<link rel="alternate" type="application/rss+xml" title="{{ .Site.title }}" href="{{ absURL "/feed.xml" }}">
<link rel="stylesheet" href="/css/site.css">
`

const scaffoldDefaultLayout = `<!doctype html>
<html lang="{{ .Site.language }}">
<head>{{ template "head" . }}</head>
<body>
<header><a href="/">{{ .Site.title }}</a></header>
<main>{{ .Content }}</main>
</body>
</html>
`

const scaffoldHomeLayout = `<!doctype html>
<html lang="{{ .Site.language }}">
<head>{{ template "head" . }}</head>
<body>
<header><a href="/">{{ .Site.title }}</a></header>
<main>
{{ .Content }}
<ul class="posts">
{{ range limit 10 (index .Collections "posts") }}<li>
<a href="{{ .Permalink }}">{{ .Meta.Title }}</a> <small>{{ date "2 Jan 2006" .Meta.Date }}</small>
{{ .Excerpt }}
</li>
{{ end }}</ul>
</main>
</body>
</html>
`

const scaffoldPostLayout = `<!doctype html>
<html lang="{{ .Site.language }}">
<head>{{ template "head" . }}</head>
<body>
<header><a href="/">{{ .Site.title }}</a></header>
<article>
<h1>{{ .Page.Meta.Title }}</h1>
<p><time datetime="{{ rfc3339 .Page.Meta.Date }}">{{ date "2 January 2006" .Page.Meta.Date }}</time> &middot; {{ readingTime .Content }} min read</p>
{{ .Content }}
<nav>
{{ with .Page.Prev }}<a rel="prev" href="{{ .Permalink }}">&larr; {{ .Meta.Title }}</a>{{ end }}
{{ with .Page.Next }}<a rel="next" href="{{ .Permalink }}">{{ .Meta.Title }} &rarr;</a>{{ end }}
</nav>
</article>
</body>
</html>
`

const scaffoldIndex = `---
title: Home
layout: home
---
Welcome! New posts appear below and in the [feed](/feed.xml).
`

const scaffoldAbout = `---
title: About
---
This blog is built with blogbuilder.
`

const scaffoldFirstPost = `---
title: Hello World
date: 2024-01-01
tags: [meta]
layout: post
---
This is the first post. Everything above the marker below becomes the excerpt.

<!-- more -->

Run ` + "`blogbuilder new \"My next post\"`" + ` to start another one.
`

const scaffoldCSS = `body { max-width: 40rem; margin: 2rem auto; font-family: sans-serif; line-height: 1.5; }
.posts { list-style: none; padding: 0; }
`

// scaffoldFiles maps relative paths to their contents. The config entry is
// written to the --config path instead.
var scaffoldFiles = map[string]string{
	"metadata.json":              scaffoldMetadata,
	"layouts/partials/head.html": scaffoldHead,
	"layouts/default.html":       scaffoldDefaultLayout,
	"layouts/home.html":          scaffoldHomeLayout,
	"layouts/post.html":          scaffoldPostLayout,
	"src/index.md":               scaffoldIndex,
	"src/about.md":               scaffoldAbout,
	"src/posts/hello-world.md":   scaffoldFirstPost,
	"static/css/site.css":        scaffoldCSS,
}
